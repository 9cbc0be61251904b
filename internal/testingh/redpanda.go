package testingh

import "fmt"

func NewRedpandaContainer(connectFn func(connURL string) error) (*Container, error) {
	return run(runSpec{
		repository:    "redpandadata/redpanda",
		tag:           "latest",
		containerPort: "9092/tcp",
		cmd: []string{
			"redpanda start",
			"--overprovisioned",
			"--smp 1",
			"--memory 1G",
			"--reserve-memory 0M",
			"--node-id 0",
			"--check=false",
		},
		advertise: func(hostPort int) []string {
			return []string{fmt.Sprintf("--advertise-kafka-addr %s:%v", hostName, hostPort)}
		},
	}, connectFn)
}
