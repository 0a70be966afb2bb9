// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package encoding

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"

	"github.com/juju/errors"
)

// MatrixVersion is the version of the matrix format written by WriteMatrix.
const MatrixVersion uint32 = 1

// maxMatrixElements bounds the allocation done for a header read from an untrusted stream.
const maxMatrixElements = 1 << 32

var matrixMagic = [4]byte{'G', 'M', 'A', 'T'}

// MatrixHeader precedes the row-major payload of a serialized matrix.
type MatrixHeader struct {
	Magic   [4]byte
	Version uint32
	Rows    uint64
	Cols    uint64
}

// WriteMatrix writes a dense matrix to byte stream: a MatrixHeader followed by
// rows*cols little-endian float64 values in row-major order. All rows must have
// the same length.
func WriteMatrix(w io.Writer, m [][]float64) error {
	header := MatrixHeader{Magic: matrixMagic, Version: MatrixVersion, Rows: uint64(len(m))}
	if len(m) > 0 {
		header.Cols = uint64(len(m[0]))
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return errors.Trace(err)
	}
	for i := range m {
		if uint64(len(m[i])) != header.Cols {
			return errors.NotValidf("row %d has %d columns, expected %d", i, len(m[i]), header.Cols)
		}
		if err := binary.Write(bw, binary.LittleEndian, m[i]); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(bw.Flush())
}

// ReadMatrixHeader reads and checks the header of a serialized matrix.
func ReadMatrixHeader(r io.Reader) (MatrixHeader, error) {
	var header MatrixHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return header, errors.Trace(err)
	}
	if header.Magic != matrixMagic {
		return header, errors.NotValidf("matrix magic %q", header.Magic[:])
	}
	if header.Version != MatrixVersion {
		return header, errors.NotSupportedf("matrix version %d", header.Version)
	}
	if header.Cols != 0 && header.Rows > maxMatrixElements/header.Cols {
		return header, errors.NotValidf("matrix size %dx%d", header.Rows, header.Cols)
	}
	return header, nil
}

// ReadMatrix reads a matrix written by WriteMatrix from byte stream.
func ReadMatrix(r io.Reader) ([][]float64, error) {
	br := bufio.NewReader(r)
	header, err := ReadMatrixHeader(br)
	if err != nil {
		return nil, err
	}
	return ReadMatrixPayload(br, header)
}

// ReadMatrixPayload reads the rows following a header returned by ReadMatrixHeader.
func ReadMatrixPayload(r io.Reader, header MatrixHeader) ([][]float64, error) {
	br := bufio.NewReader(r)
	m := make([][]float64, header.Rows)
	for i := range m {
		m[i] = make([]float64, header.Cols)
		if err := binary.Read(br, binary.LittleEndian, m[i]); err != nil {
			return nil, errors.Annotatef(err, "read row %d", i)
		}
	}
	return m, nil
}

func FormatFloat64(val float64) string {
	return strconv.FormatFloat(val, 'f', 4, 64)
}
