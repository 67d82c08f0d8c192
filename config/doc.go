// Package config holds the operating policy of an asynchronous HTTP client.
//
// [New] returns a [Config] with every field set to its Default* value and
// an owned callback executor. Setters mutate in place and return the same
// *Config so calls can be chained:
//
//	cfg := config.New().
//		SetFollowRedirect(true).
//		SetMaxRedirects(3).
//		SetRequestTimeout(10 * time.Second).
//		AddRequestFilter(filter.NewRequestID(""))
//	defer cfg.Close()
//
// Setters never validate. Consumers call [Config.Validate] once, before
// they start reading the configuration, and then treat it as read-only.
//
// # Executor ownership
//
// A Config owns exactly one executor. [Config.SetApplicationThreadPool]
// shuts the previous one down before installing the replacement, and
// [Config.Close] shuts down the current one.
package config
