// Package navigation holds the console's menu model and the permission filter
// applied to it before rendering.
//
// A menu is a static tree of [Entry] values: links, groups and section titles.
// [Filter] returns the part of the tree a permission set may see. Ungranted
// entries are hidden, not shown disabled, and a group left without children is
// hidden too. The input tree is never modified.
//
// Menus come from [Farm2GoMenu] or from YAML files read with [Load].
package navigation
