// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach routes user files into model requests.
//
// Small files are embedded inline in the request; files at or above the
// inline threshold are registered out-of-band and referenced by the
// returned handle. A failed registration falls back to inline embedding
// while the file is still under the hard ceiling; beyond it the exchange
// fails immediately rather than attempting a request guaranteed to be
// rejected.
package attach
