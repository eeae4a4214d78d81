package naming

import "strconv"

// Names holds the control-plane identifiers derived for a single dispatcher
// instance. Uniqueness across a run comes from the index alone: indexes are
// zero-based, gap-free and never reused.
type Names struct {
	Service       string
	DriversRole   string
	ExecutorsRole string
}

// ForInstance derives the service name and both role names for instance i
// of the given base name.
func ForInstance(base string, i int) Names {
	service := base + "-" + strconv.Itoa(i)

	return Names{
		Service:       service,
		DriversRole:   service + "-drivers-role",
		ExecutorsRole: service + "-executors-role",
	}
}

// RepoName derives the name under which a deployment registers its package
// repository.
func RepoName(base string) string {
	return base + "-repo"
}
