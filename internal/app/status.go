package app

import (
	"time"

	"github.com/dshills/pedald/internal/action"
	"github.com/dshills/pedald/internal/api"
	"github.com/dshills/pedald/internal/button"
	"github.com/dshills/pedald/internal/config"
	"github.com/dshills/pedald/internal/engine"
)

// dispatcher bridges the scheduler to the engine and mirrors semantic
// events onto the companion feed.
type dispatcher struct {
	app *Application
}

func (d dispatcher) Execute(ev button.Event, prog action.Program) error {
	if s := d.app.getServer(); s != nil {
		s.PublishEvent(ev)
	}
	return d.app.eng.Execute(ev, prog)
}

func (d dispatcher) ReleaseAll(id button.ID) {
	d.app.eng.ReleaseAll(id)
}

func (a *Application) dispatcher() dispatcher { return dispatcher{app: a} }

// status builds the snapshot the companion endpoint serves. The
// endpoint may be up before the engine; missing pieces report empty.
func (a *Application) status() api.Status {
	store := a.currentStore()

	st := api.Status{
		Version: a.opts.Version,
		Source:  a.sourceKind(),
		Uptime:  time.Since(a.started).Round(time.Second).String(),
	}

	for _, id := range store.Buttons() {
		bs := api.ButtonStatus{
			ID:        id.String(),
			Threshold: store.Threshold(id).String(),
			Held:      []string{},
		}
		if a.eng != nil {
			for _, k := range a.eng.Held(id) {
				bs.Held = append(bs.Held, k.String())
			}
		}
		st.Buttons = append(st.Buttons, bs)
	}

	if a.eng != nil {
		st.Engine = a.eng.Stats()
	}
	return st
}

func (a *Application) sourceKind() string {
	if a.file.Source == nil || a.file.Source.Kind == "" {
		return "hid"
	}
	return a.file.Source.Kind
}

func (a *Application) currentStore() *config.Store {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	return a.store
}

func (a *Application) setStore(store *config.Store) {
	a.storeMu.Lock()
	a.store = store
	a.storeMu.Unlock()
}

func (a *Application) getServer() *api.Server {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	return a.server
}

func (a *Application) setServer(s *api.Server) {
	a.storeMu.Lock()
	a.server = s
	a.storeMu.Unlock()
}

// noticeHook forwards engine notices to the feed once the endpoint
// exists.
func (a *Application) noticeHook() engine.Hook {
	return func(n engine.Notice) {
		if s := a.getServer(); s != nil {
			s.PublishNotice(n)
		}
	}
}
