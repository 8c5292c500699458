// Command fileproof registers file fingerprints and verifies them against the
// local record store and the on-chain file registry.
package main

func main() {
	Execute()
}
