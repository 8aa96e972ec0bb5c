package source

// NewSimpleFactory closes over a Config and returns a zero-argument
// constructor. Each call to the returned func produces a fresh, unbound
// SimpleSource sharing the baked-in frequency/callback/scheduler. The
// result is not a manager.SourceFactory, which takes the shared scheduler
// as its argument.
func NewSimpleFactory(cfg Config) func() Source {
	return func() Source {
		return NewSimple(cfg)
	}
}
