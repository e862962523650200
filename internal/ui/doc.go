// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the interactive terminal interface for docchat.
//
// The interface is a Bubble Tea program: a viewport holds the rendered
// transcript, a textarea takes input, a spinner runs while a reply is
// pending, and a filepicker overlay attaches files. Prose replies are
// rendered with glamour after document and plan blocks are stripped;
// a closed document block becomes the current exportable artifact, and
// a closed plan block raises the approval overlay.
//
// One exchange runs at a time. While a reply streams the input is
// locked, Esc cancels the exchange, and the display refreshes on a
// fixed tick that drains the delta coalescer.
package ui
