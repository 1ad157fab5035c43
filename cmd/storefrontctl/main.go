package main

import "github.com/imanix/b2b-storefront/cmd/storefrontctl/cmd"

func main() {
	cmd.Execute()
}
