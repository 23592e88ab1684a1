// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

package ingest

import (
	"os"
	"os/signal"
	"syscall"
)

// InstallSignalHandlers registers SIGINT/SIGTERM handlers that run
// ShutdownSync before letting the signal continue on its original course. Go
// has no notion of a saved previous disposition the way a C signal handler
// does, so "chain to what would otherwise have happened" means: stop
// intercepting the signal, then re-deliver it to this process so the
// runtime's default disposition (or any handler installed before this call)
// applies exactly as if this handler had never run.
func (c *Client) InstallSignalHandlers() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-ch
		signal.Stop(ch)
		c.ShutdownSync()
		reraise(sig)
	}()
}

func reraise(sig os.Signal) {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(sig)
}
