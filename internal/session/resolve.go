package session

const DefaultSessionName = "main"

// Resolve determines the active session name using precedence:
// 1. flagOverride (--session flag)
// 2. config.toml default_session
// 3. "main"
func Resolve(flagOverride, configDefault string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if configDefault != "" {
		return configDefault
	}
	return DefaultSessionName
}
