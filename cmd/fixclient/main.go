// Command fixclient logs on to the FIX gateway, crosses a buy and a sell on
// one symbol, optionally cancels the resting remainder, and logs every
// execution report it receives.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/executionreport"
	fix44nos "github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/fix44/ordercancelreject"
	"github.com/quickfixgo/fix44/ordercancelrequest"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/file"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type options struct {
	symbol   string
	price    decimal.Decimal
	buyQty   decimal.Decimal
	sellQty  decimal.Decimal
	cancel   bool
	buyAcct  string
	sellAcct string
}

type InitiatorApp struct {
	*quickfix.MessageRouter
	opts   options
	logger *logging.Logger
}

func newInitiatorApp(opts options, logger *logging.Logger) *InitiatorApp {
	app := &InitiatorApp{
		MessageRouter: quickfix.NewMessageRouter(),
		opts:          opts,
		logger:        logger,
	}
	app.AddRoute(executionreport.Route(app.onExecutionReport))
	app.AddRoute(ordercancelreject.Route(app.onOrderCancelReject))
	return app
}

func (a *InitiatorApp) OnCreate(sessionID quickfix.SessionID) {}

func (a *InitiatorApp) OnLogon(sessionID quickfix.SessionID) {
	a.logger.Info(context.Background(), "logon", zap.String("session", sessionID.String()))
	go a.sendCrossingOrders(sessionID)
}

func (a *InitiatorApp) OnLogout(sessionID quickfix.SessionID) {
	a.logger.Info(context.Background(), "logout", zap.String("session", sessionID.String()))
}

func (a *InitiatorApp) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

func (a *InitiatorApp) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

func (a *InitiatorApp) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (a *InitiatorApp) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return a.Route(msg, sessionID)
}

func (a *InitiatorApp) onExecutionReport(msg executionreport.ExecutionReport, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	clOrdID, _ := msg.GetClOrdID()
	orderID, _ := msg.GetOrderID()
	execType, _ := msg.GetExecType()
	status, _ := msg.GetOrdStatus()
	cumQty, _ := msg.GetCumQty()
	leavesQty, _ := msg.GetLeavesQty()
	fields := []zap.Field{
		zap.String("cl_ord_id", clOrdID),
		zap.String("order_id", orderID),
		zap.String("exec_type", string(execType)),
		zap.String("ord_status", string(status)),
		zap.String("cum_qty", cumQty.String()),
		zap.String("leaves_qty", leavesQty.String()),
	}
	if execType == enum.ExecType_TRADE {
		lastQty, _ := msg.GetLastQty()
		lastPx, _ := msg.GetLastPx()
		fields = append(fields, zap.String("last_qty", lastQty.String()), zap.String("last_px", lastPx.String()))
	}
	if text, err := msg.GetText(); err == nil {
		fields = append(fields, zap.String("text", text))
	}
	a.logger.Info(context.Background(), "execution report", fields...)
	return nil
}

func (a *InitiatorApp) onOrderCancelReject(msg ordercancelreject.OrderCancelReject, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	origClOrdID, _ := msg.GetOrigClOrdID()
	reason, _ := msg.GetCxlRejReason()
	a.logger.Warn(context.Background(), "cancel rejected",
		zap.String("orig_cl_ord_id", origClOrdID),
		zap.String("reason", string(reason)))
	return nil
}

func (a *InitiatorApp) sendCrossingOrders(sessionID quickfix.SessionID) {
	ctx := context.Background()

	sellID := randSeq(17)
	a.send(ctx, newOrder(sessionID, sellID, enum.Side_SELL, a.opts.sellAcct, a.opts.symbol, a.opts.price, a.opts.sellQty), "sell")
	a.send(ctx, newOrder(sessionID, randSeq(17), enum.Side_BUY, a.opts.buyAcct, a.opts.symbol, a.opts.price, a.opts.buyQty), "buy")

	if !a.opts.cancel {
		return
	}
	// Leave the gateway time to report the fills before pulling the remainder.
	time.Sleep(500 * time.Millisecond)
	req := ordercancelrequest.New(
		field.NewOrigClOrdID(sellID),
		field.NewClOrdID(randSeq(17)),
		field.NewSide(enum.Side_SELL),
		field.NewTransactTime(time.Now()))
	req.SetSymbol(a.opts.symbol)
	req.SetAccount(a.opts.sellAcct)
	req.SetSenderCompID(sessionID.SenderCompID)
	req.SetTargetCompID(sessionID.TargetCompID)
	a.send(ctx, req, "cancel")
}

type fixMessage interface {
	ToMessage() *quickfix.Message
}

func (a *InitiatorApp) send(ctx context.Context, msg fixMessage, what string) {
	if err := quickfix.Send(msg); err != nil {
		a.logger.Error(ctx, "send failed", zap.String("message", what), zap.Error(err))
		return
	}
	a.logger.Info(ctx, "sent", zap.String("message", what))
}

func newOrder(sessionID quickfix.SessionID, clOrdID string, side enum.Side, account, symbol string, price, qty decimal.Decimal) fix44nos.NewOrderSingle {
	order := fix44nos.New(
		field.NewClOrdID(clOrdID),
		field.NewSide(side),
		field.NewTransactTime(time.Now()),
		field.NewOrdType(enum.OrdType_LIMIT))
	order.SetSymbol(symbol)
	order.SetAccount(account)
	order.SetPrice(price, 2)
	order.SetOrderQty(qty, 8)
	order.SetTimeInForce(enum.TimeInForce_DAY)
	order.SetSenderCompID(sessionID.SenderCompID)
	order.SetTargetCompID(sessionID.TargetCompID)
	return order
}

func main() {
	var (
		cfgPath string
		price   string
		buyQty  string
		sellQty string
		opts    options
	)
	flag.StringVar(&cfgPath, "config", "config/fixclient.cfg", "quickfix initiator settings")
	flag.StringVar(&opts.symbol, "symbol", "ABC", "symbol to trade")
	flag.StringVar(&price, "price", "147.00", "limit price for both orders")
	flag.StringVar(&buyQty, "buy-qty", "10", "buy quantity")
	flag.StringVar(&sellQty, "sell-qty", "50", "sell quantity")
	flag.StringVar(&opts.buyAcct, "buy-account", "011C399158", "buyer account")
	flag.StringVar(&opts.sellAcct, "sell-account", "011C399157", "seller account")
	flag.BoolVar(&opts.cancel, "cancel", true, "cancel the resting sell remainder")
	flag.Parse()

	logger := logging.NewLogger(logging.INFO).With(zap.String("service", "fixclient"))
	defer func() { _ = logger.Sync() }()
	ctx := context.Background()

	var err error
	if opts.price, err = decimal.NewFromString(price); err != nil {
		logger.Fatal(ctx, "invalid price", zap.Error(err))
	}
	if opts.buyQty, err = decimal.NewFromString(buyQty); err != nil {
		logger.Fatal(ctx, "invalid buy quantity", zap.Error(err))
	}
	if opts.sellQty, err = decimal.NewFromString(sellQty); err != nil {
		logger.Fatal(ctx, "invalid sell quantity", zap.Error(err))
	}

	cfg, err := os.Open(cfgPath)
	if err != nil {
		logger.Fatal(ctx, "open settings", zap.String("path", cfgPath), zap.Error(err))
	}
	defer cfg.Close() // nolint

	settings, err := quickfix.ParseSettings(cfg)
	if err != nil {
		logger.Fatal(ctx, "parse settings", zap.Error(err))
	}

	logFactory, err := file.NewLogFactory(settings)
	if err != nil {
		logger.Fatal(ctx, "create fix log factory", zap.Error(err))
	}
	initiator, err := quickfix.NewInitiator(newInitiatorApp(opts, logger), quickfix.NewMemoryStoreFactory(), settings, logFactory)
	if err != nil {
		logger.Fatal(ctx, "create initiator", zap.Error(err))
	}
	if err := initiator.Start(); err != nil {
		logger.Fatal(ctx, "start initiator", zap.Error(err))
	}
	logger.Info(ctx, "initiator started", zap.String("config", cfgPath))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	initiator.Stop()
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func randSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
