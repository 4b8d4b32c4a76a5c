package fixgateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joripage/go_util/pkg/shardqueue"
	"github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/fix44/ordercancelrequest"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/file"
	"github.com/quickfixgo/tag"
	"go.uber.org/zap"
)

// Application implements the quickfix.Application interface
type Application struct {
	*quickfix.MessageRouter
	cfg        AppConfig
	quickEvent chan bool
	dispatcher chan *inboundMsg
	shardQueue *shardqueue.Shardqueue

	gateway *FixGateway
}

type AppConfig struct {
	enableQueue      bool
	enableShardQueue bool
	numShards        int
	queueSize        int
}

type inboundMsg struct {
	msg       *quickfix.Message
	sessionID quickfix.SessionID
}

const (
	defaultNumShards = 16
	defaultQueueSize = 100_000
)

func newApplication(cfg AppConfig, gateway *FixGateway) *Application {
	if cfg.numShards <= 0 {
		cfg.numShards = defaultNumShards
	}
	if cfg.queueSize <= 0 {
		cfg.queueSize = defaultQueueSize
	}

	app := &Application{
		MessageRouter: quickfix.NewMessageRouter(),
		cfg:           cfg,
		quickEvent:    make(chan bool, 1),
		gateway:       gateway,
	}

	app.AddRoute(newordersingle.Route(app.onNewOrderSingle))
	app.AddRoute(ordercancelrequest.Route(app.onOrderCancelRequest))

	if app.cfg.enableShardQueue {
		app.shardQueue = shardqueue.NewShardQueue(app.cfg.numShards, app.cfg.queueSize)
		app.shardQueue.Start(func(msg interface{}) error {
			if v, ok := msg.(*inboundMsg); ok {
				app.route(v)
			}
			return nil
		})
	} else if app.cfg.enableQueue {
		app.dispatcher = make(chan *inboundMsg, app.cfg.queueSize)
		go app.runDispatcher()
	}

	return app
}

func startApp(cfg *FixGatewayConfig, gateway *FixGateway) (*Application, error) {
	f, err := os.Open(cfg.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("error opening %v, %v", cfg.SettingsFile, err)
	}
	defer f.Close() // nolint

	stringData, readErr := io.ReadAll(f)
	if readErr != nil {
		return nil, fmt.Errorf("error reading cfg: %s,", readErr)
	}

	appSettings, err := quickfix.ParseSettings(bytes.NewReader(stringData))
	if err != nil {
		return nil, fmt.Errorf("error reading cfg: %s,", err)
	}

	app := newApplication(AppConfig{
		enableQueue:      !cfg.EnableShardQueue,
		enableShardQueue: cfg.EnableShardQueue,
		numShards:        cfg.NumShards,
		queueSize:        cfg.QueueSize,
	}, gateway)

	logFactory, err := file.NewLogFactory(appSettings)
	if err != nil {
		return nil, fmt.Errorf("unable to create log factory: %s", err)
	}
	acceptor, err := quickfix.NewAcceptor(app, quickfix.NewMemoryStoreFactory(), appSettings, logFactory)
	if err != nil {
		return nil, fmt.Errorf("unable to create acceptor: %s", err)
	}

	err = acceptor.Start()
	if err != nil {
		return nil, fmt.Errorf("unable to start FIX acceptor: %s", err)
	}

	go func() {
		<-app.quickEvent
		acceptor.Stop()
	}()

	return app, nil
}

func stopApp(a *Application) {
	select {
	case a.quickEvent <- true:
	default:
	}
}

// OnCreate implemented as part of Application interface
func (a *Application) OnCreate(sessionID quickfix.SessionID) {}

// OnLogon implemented as part of Application interface
func (a *Application) OnLogon(sessionID quickfix.SessionID) {
	a.gateway.logger.Info(context.Background(), "fix logon", zap.String("session", sessionID.String()))
}

// OnLogout implemented as part of Application interface
func (a *Application) OnLogout(sessionID quickfix.SessionID) {
	a.gateway.logger.Info(context.Background(), "fix logout", zap.String("session", sessionID.String()))
}

// ToAdmin implemented as part of Application interface
func (a *Application) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

// ToApp implemented as part of Application interface
func (a *Application) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

// FromAdmin implemented as part of Application interface
func (a *Application) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

// FromApp implemented as part of Application interface, uses Router on incoming application messages
func (a *Application) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) (reject quickfix.MessageRejectError) {
	if a.cfg.enableShardQueue {
		a.shardQueue.Shard(getRoutingKey(msg, sessionID), &inboundMsg{msg, sessionID})
		return nil
	} else if a.cfg.enableQueue {
		a.dispatcher <- &inboundMsg{msg, sessionID}
		return nil
	}

	return a.Route(msg, sessionID)
}

// getRoutingKey shards by symbol so each book sees its orders in arrival order.
func getRoutingKey(msg *quickfix.Message, sessionID quickfix.SessionID) string {
	if symbol, err := msg.Body.GetString(tag.Symbol); err == nil && symbol != "" {
		return symbol
	}

	if msgType, err := msg.Header.GetString(tag.MsgType); err == nil {
		return "MSGTYPE:" + msgType
	}

	return sessionID.String()
}

func (a *Application) runDispatcher() {
	for msg := range a.dispatcher {
		a.route(msg)
	}
}

func (a *Application) route(in *inboundMsg) {
	if err := a.Route(in.msg, in.sessionID); err != nil {
		a.gateway.logger.Warn(context.Background(), "route error",
			zap.String("session", in.sessionID.String()),
			zap.Error(err),
		)
	}
}

func (a *Application) onNewOrderSingle(msg newordersingle.NewOrderSingle, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	m, err := newOrderSingleFromMessage(msg, sessionID)
	if err != nil {
		return err
	}
	if m.TransactTime.IsZero() {
		m.TransactTime = time.Now()
	}

	a.gateway.AddOrder(context.Background(), m)
	return nil
}

func (a *Application) onOrderCancelRequest(msg ordercancelrequest.OrderCancelRequest, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	m, err := orderCancelRequestFromMessage(msg, sessionID)
	if err != nil {
		return err
	}

	a.gateway.CancelOrder(context.Background(), m)
	return nil
}
