package main

import "github.com/staybook/payment-service/cmd"

func main() {
	cmd.Execute()
}
