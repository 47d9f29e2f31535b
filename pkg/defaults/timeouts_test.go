// Copyright (c) 2025, Arkon Labs.  All rights reserved.
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

package defaults

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		{"SysfsReadTimeout", SysfsReadTimeout, 1 * time.Second, 30 * time.Second},
		{"ApplyTimeout", ApplyTimeout, 1 * time.Minute, 10 * time.Minute},
		{"RegenerateTimeout", RegenerateTimeout, 30 * time.Second, 5 * time.Minute},
		{"KargsTimeout", KargsTimeout, 30 * time.Second, 5 * time.Minute},
		{"StatusTimeout", StatusTimeout, 5 * time.Second, 60 * time.Second},
		{"TransactionWaitCeiling", TransactionWaitCeiling, 30 * time.Second, 5 * time.Minute},
		{"TransactionPollInterval", TransactionPollInterval, 1 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue || tt.timeout > tt.maxValue {
				t.Errorf("%s = %v, expected between %v and %v",
					tt.name, tt.timeout, tt.minValue, tt.maxValue)
			}
		})
	}
}

func TestWaitCeilingExceedsPollInterval(t *testing.T) {
	// The bounded wait needs room for several polls before giving up.
	if TransactionWaitCeiling < 5*TransactionPollInterval {
		t.Errorf("TransactionWaitCeiling %v too small for poll interval %v",
			TransactionWaitCeiling, TransactionPollInterval)
	}
}

func TestTopologyTunables(t *testing.T) {
	if ECoreFreqRatio <= 0 || ECoreFreqRatio >= 1 {
		t.Errorf("ECoreFreqRatio = %v, expected in (0,1)", ECoreFreqRatio)
	}
	if ECoreFallbackFraction <= 0 || ECoreFallbackFraction > 0.5 {
		t.Errorf("ECoreFallbackFraction = %v, expected in (0,0.5]", ECoreFallbackFraction)
	}
}
