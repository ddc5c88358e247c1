package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/module"
	"github.com/scanforge/scanforge/pkg/modules"
)

func runModulesCmd() {
	flags := flag.NewFlagSet("modules", flag.ExitOnError)
	mode := flags.String("mode", "", "Only list modules runnable under this profile")
	flags.Parse(os.Args[2:])

	reg := module.NewRegistry()
	if err := modules.Register(reg); err != nil {
		fatal(err)
	}

	names := reg.Names()
	if *mode != "" {
		profile, ok := capability.BuiltinProfile(capability.Mode(*mode))
		if !ok {
			fatal(fmt.Errorf("modules: unknown mode %q", *mode))
		}
		names = reg.FilterByCapabilities(profile.Capabilities)
	}

	for _, name := range names {
		m := reg.Get(name)
		caps := make([]string, 0, len(m.RequiredCapabilities()))
		for _, c := range m.RequiredCapabilities() {
			caps = append(caps, string(c))
		}
		fmt.Printf("%-16s %-8s requires=[%s]\n  %s\n", m.Name(), m.Version(), strings.Join(caps, ", "), m.Description())
	}
}
