package options

import (
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// SchemaJSON describes the shape of an options document. It is deliberately
// loose about unknown keys: packages accept options this tool has never
// heard of, so only the sections the deployer touches are pinned down.
const SchemaJSON = `
{
  "type": "object",
  "properties": {
    "service": {
      "type": "object",
      "properties": {
        "name": { "type": "string" },
        "cpus": { "type": "number", "minimum": 0 },
        "mem": { "type": "number", "minimum": 0 },
        "role": { "type": "string" },
        "service_account": { "type": "string" },
        "service_account_secret": { "type": "string" },
        "user": { "type": "string" },
        "log-level": { "type": "string" },
        "spark-history-server-url": { "type": "string" },
        "UCR_containerizer": { "type": "boolean" },
        "use_bootstrap_for_IP_detect": { "type": "boolean" }
      }
    },
    "security": {
      "type": "object",
      "properties": {
        "kerberos": {
          "type": "object",
          "properties": {
            "enabled": { "type": "boolean" },
            "kdc": {
              "type": "object",
              "properties": {
                "hostname": { "type": "string" },
                "port": { "type": "integer", "minimum": 0, "maximum": 65535 }
              }
            },
            "realm": { "type": "string" }
          }
        }
      }
    },
    "hdfs": {
      "type": "object",
      "properties": {
        "config-url": { "type": "string" }
      }
    }
  }
}
`

// Validate checks a raw options document against the schema. A violation is
// a configuration error: it surfaces before any control-plane call is made.
func Validate(raw []byte) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(SchemaJSON))
	if err != nil {
		return errors.Wrap(err, "compiling options schema")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.Wrap(err, "validating options")
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for idx, err := range result.Errors() {
			errs[idx] = err.String()
		}

		return errors.Errorf("options do not match schema: %v", errs)
	}

	return nil
}
