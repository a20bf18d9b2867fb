// Package device abstracts the sensor hardware behind the Adapter interface.
//
// The provisioning core depends only on Adapter: lifecycle hooks fire on
// mode transitions, Tick advances one unit of sensor work per loop
// iteration, and the data hooks feed the JSON control plane. Concrete
// variants (the gen-one presence sensor, the null adapter for builds with
// no hardware attached) are selected at startup.
package device
