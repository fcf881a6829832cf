package main

import "machine"

// ledPin drives the data line of both chained strips.
var ledPin = machine.D10

func main() {
	NewDevice(machine.Serial, ledPin).Run()
}
