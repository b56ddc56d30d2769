package convert

import (
	"strconv"

	"nmapgraph/internal/scandoc"
)

// Summary carries scan-level metadata alongside the converted hosts
type Summary struct {
	Scanner    string
	Args       string
	Version    string
	Start      string
	Elapsed    string
	HostsUp    int
	HostsDown  int
	HostsTotal int
	Tasks      []string
}

func summarize(run *scandoc.Run) Summary {
	if run == nil {
		return Summary{}
	}

	s := Summary{
		Scanner: run.Scanner,
		Args:    run.Args,
		Version: run.Version,
		Start:   run.StartStr,
	}
	if run.RunStats != nil {
		s.Elapsed = run.RunStats.Finished.Elapsed.String()
		s.HostsUp = atoiOrZero(run.RunStats.Hosts.Up)
		s.HostsDown = atoiOrZero(run.RunStats.Hosts.Down)
		s.HostsTotal = atoiOrZero(run.RunStats.Hosts.Total)
	}
	for _, task := range run.TaskBegin.Items() {
		s.Tasks = append(s.Tasks, task.Task)
	}
	return s
}

func atoiOrZero(t scandoc.Text) int {
	n, err := strconv.Atoi(t.String())
	if err != nil {
		return 0
	}
	return n
}
