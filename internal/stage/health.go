package stage

// Health reports the readiness of a stage's external dependencies.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy returns a ready health report for the named stage.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy returns a not-ready health report with a human-readable detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
