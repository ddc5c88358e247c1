// Command cli is the scanforge command line. It drives the scan engine
// against the in-memory store and a local artifact directory, and works
// with the JSON exports a scan run leaves behind.
package main

import (
	"fmt"
	"os"
)

func printUsage() {
	fmt.Println("scanforge - capability-gated security scan orchestrator")
	fmt.Println()
	fmt.Println("Usage: scanforge <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  scan       Run a scan against a target URL")
	fmt.Println("  modules    List registered modules and their required capabilities")
	fmt.Println("  diff       Diff two exported finding sets against each other")
	fmt.Println("  exception  Record a time-boxed risk acceptance for a finding")
	fmt.Println("  audit      Print an exported audit trail")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  scanforge scan -u https://app.example -mode passive")
	fmt.Println("  scanforge scan -u https://app.example -mode active -modules discovery,recorder")
	fmt.Println("  scanforge diff -current run2/findings.json -previous run1/findings.json")
	fmt.Println("  scanforge audit -file run2/audit.json -action module.run")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		runScanCmd()
	case "modules", "module":
		runModulesCmd()
	case "diff", "baseline":
		runDiffCmd()
	case "exception", "exceptions":
		runExceptionCmd()
	case "audit":
		runAuditCmd()
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
