// Package indicator drives the device status LED.
//
// The provisioner picks a Pattern from the current provisioning state and
// calls Tick once per loop iteration; implementations render the pattern
// one step at a time. SetState forces the LED out of its automatic pattern
// (the POST /led control endpoint).
package indicator
