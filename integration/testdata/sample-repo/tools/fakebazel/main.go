package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: bazel <command> <target> [args...]")
		os.Exit(2)
	}

	if os.Args[1] == "version" {
		fmt.Println("bazel fake 7.0.0")
		return
	}

	command := os.Args[1]
	target := ""
	if len(os.Args) > 2 {
		target = os.Args[2]
	}

	fmt.Printf("running %s %s %s\n", command, target, strings.Join(os.Args[3:], " "))
	fmt.Printf("GLOBAL_VAR=%s\n", os.Getenv("GLOBAL_VAR"))
	fmt.Printf("BAZEL_VAR=%s\n", os.Getenv("BAZEL_VAR"))
	fmt.Printf("LOCAL_SECRET=%s\n", os.Getenv("LOCAL_SECRET"))
	fmt.Printf("HAS_RUN_ID=%t\n", os.Getenv("REXEC_RUN_ID") != "")

	if strings.Contains(target, "fail") {
		fmt.Fprintln(os.Stderr, "boom")
		os.Exit(1)
	}
}
