/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package subprocreader

import (
	"fmt"

	"github.com/gravwell/logreaders/decompress"
)

// helperArgv determines the helper module from (fileType, variant) and
// assembles its argument vector, including the "--wait-input-per-prints"
// flag one greater than N (§4.3 "Construction").
func helperArgv(path string, ft decompress.FileType, variant string) ([]string, error) {
	var module string
	switch ft {
	case decompress.FileTypeETL:
		module = "etlparser"
	case decompress.FileTypeASL:
		module = "aslparser"
	case decompress.FileTypeODL:
		module = "odlparser"
	default:
		return nil, fmt.Errorf("subprocreader: unsupported file type %v for helper dispatch", ft)
	}

	argv := []string{"python3", "-m", module}
	if variant != "" {
		argv = append(argv, fmt.Sprintf("--variant=%s", variant))
	}
	argv = append(argv, fmt.Sprintf("--wait-input-per-prints=%d", N+1), path)
	return argv, nil
}
