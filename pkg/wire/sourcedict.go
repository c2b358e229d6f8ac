// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"crypto/sha1"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// HashIDLen is the digit count of a source dict hash identifier.
const HashIDLen = 27

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// SourceDict is a canonical sorted string-to-string mapping describing a
// metric source. Keys are unique; pairs are kept sorted by key.
type SourceDict struct {
	pairs []dictPair
}

type dictPair struct {
	key   string
	value string
}

// NewSourceDict canonicalizes m into a SourceDict. Keys or values containing
// the pair or field separators are rejected.
func NewSourceDict(m map[string]string) (SourceDict, error) {
	pairs := make([]dictPair, 0, len(m))
	for k, v := range m {
		if strings.ContainsAny(k, ":,") || strings.ContainsAny(v, ":,") {
			return SourceDict{}, fmt.Errorf("source dict field %q:%q contains a separator", k, v)
		}
		pairs = append(pairs, dictPair{key: k, value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	return SourceDict{pairs: pairs}, nil
}

// ParseSourceDict decodes the wire form "k:v,k:v,...". The empty input is the
// empty dict. Duplicate keys keep the last value, then re-canonicalize.
func ParseSourceDict(data []byte) (SourceDict, error) {
	if len(data) == 0 {
		return SourceDict{}, nil
	}
	m := make(map[string]string)
	for _, field := range strings.Split(string(data), ",") {
		k, v, ok := strings.Cut(field, ":")
		if !ok {
			return SourceDict{}, fmt.Errorf("source dict field %q has no separator", field)
		}
		m[k] = v
	}
	return NewSourceDict(m)
}

// Encode serializes the ordered pairs.
func (d SourceDict) Encode() []byte {
	var b strings.Builder
	for i, p := range d.pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.key)
		b.WriteByte(':')
		b.WriteString(p.value)
	}
	return []byte(b.String())
}

// Get returns the value stored for key.
func (d SourceDict) Get(key string) (string, bool) {
	i := sort.Search(len(d.pairs), func(i int) bool { return d.pairs[i].key >= key })
	if i < len(d.pairs) && d.pairs[i].key == key {
		return d.pairs[i].value, true
	}
	return "", false
}

// Len returns the number of pairs.
func (d SourceDict) Len() int {
	return len(d.pairs)
}

// Keys returns the sorted key list.
func (d SourceDict) Keys() []string {
	keys := make([]string, len(d.pairs))
	for i, p := range d.pairs {
		keys[i] = p.key
	}
	return keys
}

// Merge returns a dict holding both pair sets; on shared keys other wins.
func (d SourceDict) Merge(other SourceDict) SourceDict {
	pairs := make([]dictPair, 0, len(d.pairs)+len(other.pairs))
	for _, p := range d.pairs {
		if _, shadowed := other.Get(p.key); shadowed {
			continue
		}
		pairs = append(pairs, p)
	}
	pairs = append(pairs, other.pairs...)
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	return SourceDict{pairs: pairs}
}

// Without returns a dict with every key of other removed.
func (d SourceDict) Without(other SourceDict) SourceDict {
	pairs := make([]dictPair, 0, len(d.pairs))
	for _, p := range d.pairs {
		if _, removed := other.Get(p.key); removed {
			continue
		}
		pairs = append(pairs, p)
	}
	return SourceDict{pairs: pairs}
}

// HashID returns the dict identifier: the SHA1 of the encoded form rendered
// as HashIDLen base-62 digits, zero-padded on the left.
func (d SourceDict) HashID() string {
	sum := sha1.Sum(d.Encode())
	n := new(big.Int).SetBytes(sum[:])
	base := big.NewInt(int64(len(base62Alphabet)))
	digit := new(big.Int)
	out := make([]byte, HashIDLen)
	for i := HashIDLen - 1; i >= 0; i-- {
		n.DivMod(n, base, digit)
		out[i] = base62Alphabet[digit.Int64()]
	}
	return string(out)
}
