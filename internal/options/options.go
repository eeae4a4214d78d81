package options

import (
	"encoding/json"
	"os"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// Options is one package installation document. It stays free-form so a
// user-supplied file passes through to the control plane untouched; the
// deployer only ever writes the service.name and service.role slots.
type Options map[string]any

// Defaults carries the flag-derived values that seed a base configuration
// when the caller supplies no options file.
type Defaults struct {
	CPUs             int
	MemMB            float64
	Role             string
	ServiceAccount   string
	ServiceSecret    string
	User             string
	LogLevel         string
	HistoryServerURL string
	UCRContainerizer bool

	KerberosEnabled bool
	KDCHostname     string
	KDCPort         int
	KerberosRealm   string

	HDFSConfigURL string
}

// FromDefaults builds the options document the package expects when no
// options file is given.
func FromDefaults(d Defaults) Options {
	return Options{
		"service": map[string]any{
			"cpus":                        d.CPUs,
			"mem":                         d.MemMB,
			"role":                        d.Role,
			"service_account":             d.ServiceAccount,
			"service_account_secret":      d.ServiceSecret,
			"user":                        d.User,
			"log-level":                   d.LogLevel,
			"spark-history-server-url":    d.HistoryServerURL,
			"UCR_containerizer":           d.UCRContainerizer,
			"use_bootstrap_for_IP_detect": false,
		},
		"security": map[string]any{
			"kerberos": map[string]any{
				"enabled": d.KerberosEnabled,
				"kdc": map[string]any{
					"hostname": d.KDCHostname,
					"port":     d.KDCPort,
				},
				"realm": d.KerberosRealm,
			},
		},
		"hdfs": map[string]any{
			"config-url": d.HDFSConfigURL,
		},
	}
}

// FromFile loads a complete options document. The file replaces computed
// defaults wholesale; nothing is merged.
func FromFile(path string) (Options, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading options file")
	}

	if err := Validate(b); err != nil {
		return nil, err
	}

	var opts Options
	if err := json.Unmarshal(b, &opts); err != nil {
		return nil, errors.Wrap(err, "unmarshalling options file")
	}

	return opts, nil
}

// Clone returns a deep copy. The deployer snapshots the base options for
// every instance so no iteration can observe another's slot writes.
func (o Options) Clone() (Options, error) {
	clone := Options{}
	if err := copier.CopyWithOption(&clone, o, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(err, "deep copying options")
	}

	return clone, nil
}

// SetServiceName overwrites the service.name slot, creating the service
// section when the document carries none.
func (o Options) SetServiceName(name string) {
	o.serviceSection()["name"] = name
}

// SetServiceRole overwrites the service.role slot.
func (o Options) SetServiceRole(role string) {
	o.serviceSection()["role"] = role
}

func (o Options) serviceSection() map[string]any {
	section, ok := o["service"].(map[string]any)
	if !ok {
		section = map[string]any{}
		o["service"] = section
	}

	return section
}
