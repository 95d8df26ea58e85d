package cache

import "fmt"

// Key helpers for the GitHub responses the registry build caches.
// Keys are namespaced by response kind so a repository's metadata,
// releases, and descriptor can be invalidated independently.

// RepoKey is the cache key for repository metadata.
func RepoKey(owner, name string) string {
	return fmt.Sprintf("repo:%s/%s", owner, name)
}

// ReleaseKey is the cache key for a release lookup. ref is "latest" or
// a tag name.
func ReleaseKey(owner, name, ref string) string {
	return fmt.Sprintf("release:%s/%s@%s", owner, name, ref)
}

// TagsKey is the cache key for a repository's tag list.
func TagsKey(owner, name string) string {
	return fmt.Sprintf("tags:%s/%s", owner, name)
}

// DescriptorKey is the cache key for a plugin.json fetched at a ref.
// subdir may be empty when the descriptor sits at the repo root.
func DescriptorKey(owner, name, ref, subdir string) string {
	if subdir == "" {
		return fmt.Sprintf("descriptor:%s/%s@%s", owner, name, ref)
	}
	return fmt.Sprintf("descriptor:%s/%s@%s/%s", owner, name, ref, subdir)
}
