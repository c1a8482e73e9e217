package main

import (
	"fmt"
	"os"

	"github.com/rickbassham/fitsderotate/common"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch common.KindOf(err) {
	case common.KindIO:
		return 2
	case common.KindConfiguration:
		return 3
	case common.KindInterpolation:
		return 4
	}
	return 1
}
