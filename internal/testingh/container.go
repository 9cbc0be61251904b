// Package testingh starts throwaway docker containers for integration tests.
package testingh

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
)

var hostName = os.Getenv("OVERRIDE_HOSTNAME")

func init() {
	const defaultHostName = "localhost"

	if hostName == "" {
		hostName = defaultHostName
	}
}

type Container struct {
	resource *dockertest.Resource
}

func (c *Container) Purge() error {
	return c.resource.Close()
}

type runSpec struct {
	repository    string
	tag           string
	env           []string
	cmd           []string
	containerPort docker.Port
	// advertise is called with the host port before the container starts.
	advertise func(hostPort int) []string
}

func run(spec runSpec, connectFn func(connURL string) error) (*Container, error) {
	hostPort, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free hostPort: %w", err)
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not connect to docker: %w", err)
	}

	cmd := spec.cmd
	if spec.advertise != nil {
		cmd = append(cmd, spec.advertise(hostPort)...)
	}

	resource, err := pool.RunWithOptions(
		&dockertest.RunOptions{
			Repository: spec.repository,
			Tag:        spec.tag,
			Env:        spec.env,
			Cmd:        cmd,
			Auth: docker.AuthConfiguration{
				Username: os.Getenv("ARTIFACTORY_USER"),
				Password: os.Getenv("ARTIFACTORY_PWD"),
			},
			PortBindings: map[docker.Port][]docker.PortBinding{
				spec.containerPort: {{
					HostIP:   hostName,
					HostPort: strconv.Itoa(hostPort),
				}},
			},
		}, func(config *docker.HostConfig) {
			config.AutoRemove = true
			config.RestartPolicy = docker.RestartPolicy{
				Name: "no",
			}
		})
	if err != nil {
		return nil, fmt.Errorf("could not create a container: %w", err)
	}

	container := &Container{
		resource: resource,
	}
	addr := fmt.Sprintf("%s:%s", hostName, resource.GetPort(string(spec.containerPort)))
	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	if err := pool.Retry(func() error {
		return connectFn(addr)
	}); err != nil {
		_ = container.Purge()
		return nil, fmt.Errorf("could not connect to container: %w", err)
	}

	return container, nil
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
