package notificacao

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Nats publica os eventos em <subject>.<tipo>.
type Nats struct {
	conn    *nats.Conn
	subject string
}

func NovoNats(url, subject string, log *zap.Logger) (*Nats, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("portal-ofertas"),
		nats.Timeout(2*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(60),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats desconectado", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconectado", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Nats{conn: conn, subject: subject}, nil
}

func (n *Nats) Publicar(ctx context.Context, e Evento) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject+"."+e.Tipo, body); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func (n *Nats) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
