/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package decompress

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func TestResolvePassthrough(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello world\n"), 0644))

	res, err := Default.Resolve(p, FileTypeUnknown)
	require.NoError(t, err)
	require.False(t, res.Temp)
	require.Equal(t, p, res.Path)
}

func TestResolveGzip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "data.gz")

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("decompressed payload\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0644))

	res, err := Default.Resolve(p, FileTypeEvtx)
	require.NoError(t, err)
	require.True(t, res.Temp)
	defer os.Remove(res.Path)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, "decompressed payload\n", string(got))
}
