package consolhttp

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/finboard-hq/finboard/internal/consol"
)

// reportGroup collapses concurrent builds of the same report key into a
// single engine invocation. The build runs detached from the first caller's
// context so that one cancelled requester does not abort the shared result.
type reportGroup struct {
	group singleflight.Group
}

func (g *reportGroup) build(ctx context.Context, key string, fn func(context.Context) (consol.Report, error)) (consol.Report, error) {
	ch := g.group.DoChan(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return consol.Report{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return consol.Report{}, res.Err
		}
		report, ok := res.Val.(consol.Report)
		if !ok {
			return consol.Report{}, errUnexpectedPayload
		}
		return report, nil
	}
}
