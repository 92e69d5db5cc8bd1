package tape

import "strings"

// Config collects the tape options. Instances are filled by the
// configuration functions passed to [Create] and [Open].
type Config struct {
	file    string
	durable bool
}

type ConfigFunc = func(c *Config)

// WithFile sets the tape file. The reserved name ":memory:" keeps the
// tape in memory, see [Create].
func WithFile(file string) ConfigFunc {
	file = strings.TrimSpace(file)
	if file == "" {
		panic("file can't be blank")
	}
	if strings.Contains(file, "?") {
		panic("file can't contain ?")
	}
	return func(c *Config) {
		c.file = file
	}
}

// WithDurable makes every recorded batch survive power loss at the cost
// of slower writes. It has no effect on in-memory tapes.
func WithDurable(durable bool) ConfigFunc {
	return func(c *Config) {
		c.durable = durable
	}
}

func newConfig(configFuncs ...ConfigFunc) *Config {
	cfg := &Config{}
	WithFile(memory)(cfg)
	for _, cf := range configFuncs {
		cf(cfg)
	}
	return cfg
}
