/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

// Observer receives change notifications from a drawing element. Calls are
// made synchronously on the mutating goroutine before the mutator returns.
//
// Path closing is reported through GeometryChange only, even though it
// updates the Closed option.
type Observer interface {
	// ChildrenChange reports that a container's child list was mutated.
	ChildrenChange()
	// OptionsChange reports a style, visibility or transform change.
	OptionsChange()
	// GeometryChange reports a change of points, radius or segment structure.
	GeometryChange()
}

// ObserverFuncs adapts optional callbacks to Observer. Nil slots are ignored.
type ObserverFuncs struct {
	OnChildrenChange func()
	OnOptionsChange  func()
	OnGeometryChange func()
}

func (f *ObserverFuncs) ChildrenChange() {
	if f != nil && f.OnChildrenChange != nil {
		f.OnChildrenChange()
	}
}

func (f *ObserverFuncs) OptionsChange() {
	if f != nil && f.OnOptionsChange != nil {
		f.OnOptionsChange()
	}
}

func (f *ObserverFuncs) GeometryChange() {
	if f != nil && f.OnGeometryChange != nil {
		f.OnGeometryChange()
	}
}
