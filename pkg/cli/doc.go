/*
Copyright © 2025 Arkon Labs
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the arkon command line interface. Each command
// maps to one profile-store or backend operation; command wiring stays
// thin and all behavior lives in the domain packages.
package cli
