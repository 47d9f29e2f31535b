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

// Package transaction coordinates kernel-parameter applies as audited,
// retryable transactions.
//
// Every apply produces a Record walking a strict state machine:
//
//	PENDING -> VALIDATING -> APPLYING -> APPLIED
//	                                  -> FAILED -> ROLLED_BACK
//	                                            -> ROLLBACK_FAILED
//
// Validation re-reads the live parameter set so the applied diff always
// reflects current reality, and a no-op request succeeds without
// touching the backend. Transient failures are retried with doubling
// backoff; structural failures fail fast and trigger a best-effort
// rollback to the pre-transaction set. Terminal records are appended to
// a JSONL journal for audit regardless of outcome.
package transaction
