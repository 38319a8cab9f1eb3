package connector

// Listener receives connector transitions. Calls are synchronous from
// Connect or Tick; a listener must not call back into either.
type Listener interface {
	OnConnecting(target string)
	OnConnect(target string)
	// OnError reports a ConfigError (errcode.MissingTarget), a TimeoutError
	// (errcode.Timeout) or a refused join (errcode.JoinRejected). Broadcast
	// mode is already restored when it is called.
	OnError(err error)
}

// Funcs adapts plain functions to a Listener; nil fields are skipped.
type Funcs struct {
	Connecting func(target string)
	Connect    func(target string)
	Error      func(err error)
}

func (f Funcs) OnConnecting(target string) {
	if f.Connecting != nil {
		f.Connecting(target)
	}
}

func (f Funcs) OnConnect(target string) {
	if f.Connect != nil {
		f.Connect(target)
	}
}

func (f Funcs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

type nopListener struct{}

func (nopListener) OnConnecting(string) {}
func (nopListener) OnConnect(string)    {}
func (nopListener) OnError(error)       {}
