package main

import "tgreceiver/internal/app"

// @title        tgreceiver operator API
// @version      1.0
// @description  Onboarding bot for phone-linked accounts: operator endpoints.
// @BasePath     /
func main() {
	app.Run()
}
