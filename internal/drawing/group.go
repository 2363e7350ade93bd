/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import "chartdraw/internal/geometry"

// Group is a container for child elements with its own options. Children are
// held by reference; the group does not take over their observers.
type Group struct {
	element
	children []Element
}

func NewGroup(opts ...Option) *Group {
	return &Group{element: newElement(opts)}
}

// Children returns the child list in append order. The slice must not be modified.
func (g *Group) Children() []Element { return g.children }

// Append adds nodes after the existing children.
func (g *Group) Append(nodes ...Element) *Group {
	g.children = append(g.children, nodes...)
	g.childrenChange()
	return g
}

// Remove detaches the first occurrence of node. It reports whether node was a child.
func (g *Group) Remove(node Element) bool {
	for i, c := range g.children {
		if c == node {
			g.children = append(g.children[:i:i], g.children[i+1:]...)
			g.childrenChange()
			return true
		}
	}
	return false
}

func (g *Group) Clear() *Group {
	g.children = nil
	g.childrenChange()
	return g
}

func (g *Group) Visible(v bool) *Group {
	g.SetVisible(v)
	return g
}

// Traverse calls fn for every descendant, depth first in child order.
// The group itself is not visited.
func (g *Group) Traverse(fn func(Element)) {
	for _, c := range g.children {
		fn(c)
		if sub, ok := c.(*Group); ok {
			sub.Traverse(fn)
		}
	}
}

// BoundingRect unions the rectangles of all children that have one.
// An empty group has no rectangle.
func (g *Group) BoundingRect() (geometry.Rect, bool) {
	var b geometry.Rect
	found := false
	for _, c := range g.children {
		cb, ok := c.BoundingRect()
		if !ok {
			continue
		}
		if !found {
			b = cb
			found = true
		} else {
			b = b.Union(cb)
		}
	}
	if !found {
		return geometry.Rect{}, false
	}
	return g.transformed(b), true
}
