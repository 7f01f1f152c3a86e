package main

const (
	ExtensionName = "headlamp"
	// Server names this process in session keys.
	Server = "sim"
)

func main() {
	Execute()
}
