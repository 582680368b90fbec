// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package relay

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol/bmc"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/pkg/log"
)

type (
	// Config is the config of the relayer
	Config struct {
		// TxSizeLimit is the maximum size of the relay message carried by one action, larger messages are
		// sent in fragments
		TxSizeLimit uint64 `yaml:"txSizeLimit"`
		// MaxRetries is the number of retries of a failed submission
		MaxRetries uint64 `yaml:"maxRetries"`
		// RetryInterval is the initial interval between retries, doubled on every retry up to MaxRetryInterval
		RetryInterval    time.Duration `yaml:"retryInterval"`
		MaxRetryInterval time.Duration `yaml:"maxRetryInterval"`
	}

	// Sender submits actions to the host of the message center
	Sender interface {
		Send(ctx context.Context, act action.Action) (*action.Receipt, error)
	}

	// Relayer submits the relay messages of a link to the message center
	Relayer struct {
		cfg    Config
		sender Sender
		bmc    address.Address
		prev   string
		logger *zap.Logger
	}
)

// DefaultConfig is the default config of the relayer
var DefaultConfig = Config{
	TxSizeLimit:      382692,
	MaxRetries:       5,
	RetryInterval:    time.Second,
	MaxRetryInterval: 10 * time.Second,
}

var _relayMtc = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "iotex_btp_relay",
		Help: "BTP relayer statistics.",
	},
	[]string{"type"},
)

func init() {
	prometheus.MustRegister(_relayMtc)
}

// NewRelayer creates a relayer submitting messages from the link prev to the message center at bmc
func NewRelayer(cfg Config, sender Sender, bmcAddr address.Address, prev string) (*Relayer, error) {
	if cfg.TxSizeLimit == 0 {
		return nil, errors.Wrap(btp.ErrInvalidArgument, "zero tx size limit")
	}
	if _, err := btp.ParseAddress(prev); err != nil {
		return nil, err
	}
	return &Relayer{
		cfg:    cfg,
		sender: sender,
		bmc:    bmcAddr,
		prev:   prev,
		logger: log.Logger("relay").With(zap.String("prev", prev)),
	}, nil
}

// Actions returns the actions carrying msg. A message within the size limit is carried by one relay action,
// a larger one by fragments indexed -N, N-1, ..., 1, 0, the last fragment completing the message
func (r *Relayer) Actions(msg []byte) []action.Action {
	call := action.Call{To: r.bmc.String()}
	limit := int(r.cfg.TxSizeLimit)
	if len(msg) <= limit {
		return []action.Action{&bmc.HandleRelayMessage{Call: call, Prev: r.prev, Msg: msg}}
	}
	n := (len(msg) + limit - 1) / limit
	acts := make([]action.Action, 0, n)
	for i := 0; i < n; i++ {
		end := (i + 1) * limit
		if end > len(msg) {
			end = len(msg)
		}
		idx := int64(n - 1 - i)
		if i == 0 {
			idx = -idx
		}
		acts = append(acts, &bmc.HandleFragment{Call: call, Prev: r.prev, Msg: msg[i*limit : end], Index: idx})
	}
	return acts
}

// Relay submits msg to the message center and returns the receipt of the action completing it
func (r *Relayer) Relay(ctx context.Context, msg []byte) (*action.Receipt, error) {
	var receipt *action.Receipt
	acts := r.Actions(msg)
	for i, act := range acts {
		rcpt, err := r.send(ctx, act)
		if err != nil {
			_relayMtc.WithLabelValues("failed").Inc()
			return nil, errors.Wrapf(err, "failed to submit action %d of %d", i+1, len(acts))
		}
		receipt = rcpt
	}
	_relayMtc.WithLabelValues("relayed").Inc()
	if len(acts) > 1 {
		_relayMtc.WithLabelValues("fragmented").Inc()
	}
	return receipt, nil
}

// send submits act, retrying failures of no known kind. Rejections by the message center are final
func (r *Relayer) send(ctx context.Context, act action.Action) (*action.Receipt, error) {
	var receipt *action.Receipt
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.RetryInterval
	bo.MaxInterval = r.cfg.MaxRetryInterval
	bo.MaxElapsedTime = 0
	err := backoff.RetryNotify(func() error {
		rcpt, err := r.sender.Send(ctx, act)
		if err == nil {
			receipt = rcpt
			return nil
		}
		if btp.CodeOf(err) != btp.CodeUnknown {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, r.cfg.MaxRetries), ctx), func(err error, next time.Duration) {
		_relayMtc.WithLabelValues("retry").Inc()
		r.logger.Warn("Failed to submit, retrying.", zap.Error(err), zap.Duration("next", next))
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}
