package deploy_test

import (
	"os"
	"path/filepath"
	"strings"
)

// stubScript stands in for the real CLI. It appends every invocation to
// $DCOS_STUB_LOG, copies submitted option files into $DCOS_STUB_OPTS_DIR
// and answers list commands with canned JSON.
const stubScript = `#!/bin/sh
line="$*"
echo "$line" >> "$DCOS_STUB_LOG"

for arg in "$@"; do
	case "$arg" in
	--options=*)
		cp "${arg#--options=}" "$(mktemp "$DCOS_STUB_OPTS_DIR/options-capture-XXXXXX")"
		;;
	esac
done

case "$line" in
"package install broken --options="*)
	echo "package broken not found" >&2
	exit 1
	;;
*"quota list"*)
	echo '{"infos": []}'
	;;
*"repo list"*)
	echo '{"repositories": [{"name": "Universe", "uri": "https://universe.mesosphere.com/repo"}]}'
	;;
esac
`

func writeStubCLI(dir string) (string, error) {
	path := filepath.Join(dir, "dcos")
	if err := os.WriteFile(path, []byte(stubScript), 0755); err != nil {
		return "", err
	}

	return path, nil
}

func readLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	content := strings.TrimRight(string(b), "\n")
	if content == "" {
		return nil, nil
	}

	return strings.Split(content, "\n"), nil
}
