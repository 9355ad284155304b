package main

import "github.com/zfogg/sidechain/reels/internal/cmd"

func main() {
	cmd.Execute()
}
