package http

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/leshachaplin/medtrack/app"
	"github.com/leshachaplin/medtrack/internal/config"
	"github.com/leshachaplin/medtrack/internal/storage/event/clickhouse"
	"github.com/leshachaplin/medtrack/internal/testingh"
	"github.com/leshachaplin/medtrack/internal/worker"
	"github.com/leshachaplin/medtrack/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/medtrack/internal/worker/redpanda/producer"
)

const (
	eventTopic = "event"
)

var (
	defaultTopics = []string{eventTopic}
)

type IntegrationTestSuite struct {
	ctx      context.Context
	cancelFn context.CancelFunc

	kafkaCLi            *kadm.Client
	redpandaContainer   *testingh.Container
	clickhouseContainer *testingh.Container
	broker              string
	clickhouseCfg       clickhouse.Config
	storage             *clickhouse.Clickhouse
	app                 *app.App
	baseURL             string

	wg *sync.WaitGroup

	suite.Suite
}

func (i *IntegrationTestSuite) SetupSuite() {
	var err error
	ctx, cnsl := context.WithTimeout(context.Background(), time.Minute*3)
	i.ctx = ctx
	i.cancelFn = cnsl

	i.redpandaContainer, err = testingh.NewRedpandaContainer(func(connURL string) error {
		i.broker = connURL
		pandaCLi, err := kgo.NewClient(kgo.SeedBrokers(connURL))
		if err != nil {
			return err
		}

		if pingErr := pandaCLi.Ping(ctx); pingErr != nil {
			pandaCLi.Close()
			return pingErr
		}

		i.kafkaCLi = kadm.NewClient(pandaCLi)
		return nil
	})
	i.Require().NoError(err)

	i.clickhouseContainer, err = testingh.NewClickhouseContainer(func(connURL string) error {
		cfg := clickhouse.Config{
			Addr:     connURL,
			DB:       testingh.ClickhouseDB,
			Username: testingh.ClickhouseUser,
			Password: testingh.ClickhousePassword,
		}
		ch, err := clickhouse.New(i.ctx, cfg, zerolog.Nop())
		if err != nil {
			return err
		}

		i.clickhouseCfg = cfg
		i.storage = ch
		return nil
	})
	i.Require().NoError(err)

	createTopicResponses, err := i.kafkaCLi.CreateTopics(ctx, 1, 1, map[string]*string{}, defaultTopics...)
	i.Require().NoError(err)
	for _, response := range createTopicResponses {
		i.Require().NoError(response.Err)
	}
	i.kafkaCLi.Close()

	addr, err := freeAddr()
	i.Require().NoError(err)
	i.baseURL = fmt.Sprintf("http://%s", addr)

	i.app = app.New(func() (config.Config, error) {
		return config.Config{
			LogLevel: string(app.WARN),
			Addr:     addr,
			Storage: config.StorageConfig{
				Driver:     config.DriverClickhouse,
				Clickhouse: i.clickhouseCfg,
			},
			EventWorker: worker.Config{
				NumWorkers: 8,
			},
			EventConsumer: consumer.Config{
				Brokers:       []string{i.broker},
				ConsumerGroup: "event-cg",
				Topics:        []string{eventTopic},
			},
			EventProducer: producer.Config{
				RetryAttempts: 5,
				RetryDelay:    time.Second,
				Brokers:       []string{i.broker},
				Topic:         eventTopic,
			},
		}, nil
	})

	i.wg = &sync.WaitGroup{}
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.app.Start()
	}()

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = 5 * time.Second
	resp, err := retryClient.Get(i.baseURL + "/_/ready")
	i.Require().NoError(err)
	_ = resp.Body.Close()
}

func (i *IntegrationTestSuite) TearDownSuite() {
	i.app.Stop()
	i.wg.Wait()
	i.cancelFn()

	if i.storage != nil {
		i.Assert().NoError(i.storage.Close())
	}
	i.Assert().NoError(i.redpandaContainer.Purge())
	i.Assert().NoError(i.clickhouseContainer.Purge())
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires docker")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func freeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}
