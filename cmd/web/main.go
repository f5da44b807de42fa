package main

import "zaistock_backend/internal/app"

func main() {
	app.Run()
}
