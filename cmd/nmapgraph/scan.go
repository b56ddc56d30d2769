package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nmapgraph/internal/adapter"
	"nmapgraph/internal/config"
	"nmapgraph/internal/logging"
)

func newScanCmd(flags *globalFlags) *cobra.Command {
	var (
		profile           string
		topPorts          int
		ports             string
		serviceDetection  bool
		osDetection       bool
		skipHostDiscovery bool
	)

	cmd := &cobra.Command{
		Use:   "scan [targets...]",
		Short: "Run nmap and ingest the results",
		Long: `Run nmap against the given targets (or scan.targets from the config file)
and ingest the results. OS detection requires root.

A profile (common, fast, aggressive) overrides the detection switches of
the config file. --top-ports and --ports narrow the port list further, and
the detection flags override everything else.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, flags)
			if err != nil {
				return err
			}

			sc := rt.cfg.Scan
			targets := args
			if len(targets) == 0 {
				targets = sc.Targets
			}
			if len(targets) == 0 {
				return fmt.Errorf("no targets given and scan.targets is empty")
			}

			fl := cmd.Flags()
			if fl.Changed("profile") {
				sc.Profile = profile
			}
			if fl.Changed("top-ports") {
				sc.TopPorts = topPorts
			}

			opts, err := scanOptions(sc)
			if err != nil {
				return err
			}
			if fl.Changed("ports") {
				opts = append(opts, adapter.WithPortRange(ports))
			}
			if fl.Changed("service-detection") {
				opts = append(opts, adapter.WithServiceDetection(serviceDetection))
			}
			if fl.Changed("os-detection") {
				opts = append(opts, adapter.WithOSDetection(osDetection))
			}
			if fl.Changed("skip-host-discovery") {
				opts = append(opts, adapter.WithSkipHostDiscovery(skipHostDiscovery))
			}
			opts = append(opts, adapter.WithLogger(logging.WithComponent(rt.logger, "nmap")))

			nmapAdapter := adapter.NewNmapAdapter(targets, opts...)
			if err := nmapAdapter.Check(cmd.Context()); err != nil {
				return err
			}

			p, err := newPipeline(rt, flags.output, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer p.Close()

			return p.run(cmd.Context(), nmapAdapter)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&profile, "profile", "", "scan profile (common, fast, aggressive)")
	fl.IntVar(&topPorts, "top-ports", 0, "scan roughly the N most common ports (10, 100, 1000)")
	fl.StringVarP(&ports, "ports", "p", "", "ports to scan, e.g. 22,80,443 or 1-1024")
	fl.BoolVar(&serviceDetection, "service-detection", true, "detect service versions (-sV)")
	fl.BoolVar(&osDetection, "os-detection", false, "detect operating systems (-O)")
	fl.BoolVar(&skipHostDiscovery, "skip-host-discovery", false, "treat all hosts as online (-Pn)")

	return cmd
}

// scanOptions turns the scan config section into adapter options. Ports
// override top-ports and both override the profile's port list.
func scanOptions(sc config.ScanConfig) ([]adapter.NmapOption, error) {
	opts := []adapter.NmapOption{
		adapter.WithServiceDetection(sc.ServiceDetection),
		adapter.WithOSDetection(sc.OSDetection),
		adapter.WithSkipHostDiscovery(sc.SkipHostDiscovery),
		adapter.WithTimeout(sc.Timeout.Duration()),
	}
	if sc.Profile != "" {
		opt, err := adapter.ProfileOption(sc.Profile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	if sc.TopPorts > 0 {
		opts = append(opts, adapter.WithTopPorts(sc.TopPorts))
	}
	if sc.Ports != "" {
		opts = append(opts, adapter.WithPortRange(sc.Ports))
	}
	return opts, nil
}
