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

package writer

import (
	"context"
	"errors"

	"github.com/novatechflow/vaultaire/pkg/objects"
	"github.com/novatechflow/vaultaire/pkg/origin"
	"github.com/novatechflow/vaultaire/pkg/pool"
	"github.com/novatechflow/vaultaire/pkg/wire"
)

// ReadBucket fetches one (epoch, bucket) pair and materializes its points:
// simple records keep their inline payload, extended records are resolved
// through their byte offset into the extended object. Duplicate timestamps
// are dropped, first stored wins.
func ReadBucket(ctx context.Context, p *pool.Pool, o origin.Origin, epoch, bucket uint64) ([]wire.Point, error) {
	simpleBytes, err := p.ReadFull(ctx, objects.Bucket(o, bucket, epoch, objects.KindSimple))
	if err != nil {
		if errors.Is(err, pool.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	records, err := wire.ParseSimpleBucket(simpleBytes)
	if err != nil {
		return nil, err
	}

	var extendedBytes []byte
	for i := range records {
		if !records[i].IsExtended() {
			continue
		}
		if extendedBytes == nil {
			extendedBytes, err = p.ReadFull(ctx, objects.Bucket(o, bucket, epoch, objects.KindExtended))
			if err != nil {
				return nil, err
			}
		}
		payload, err := wire.SliceExtendedPayload(extendedBytes, records[i].Payload)
		if err != nil {
			return nil, err
		}
		records[i].Extended = append([]byte(nil), payload...)
		records[i].Payload = uint64(len(payload))
	}
	return records, nil
}
