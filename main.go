package main

import "salespipe/internal/app"

func main() {
	app.Run()
}
