package probe

// Probe is one named read-only XRPC operation exercised once per run.
type Probe struct {
	Name   string
	NSID   string
	Params map[string]string
}

// PrimaryProbeName is the catalog's first entry, the health check that defines
// "online" for uptime purposes.
const PrimaryProbeName = "server_describe"

const (
	examplePostURI = "at://did:plc:example/app.bsky.feed.post/123"
	exampleListURI = "at://did:plc:example/app.bsky.graph.list/123"
)

// DefaultCatalog returns the ordered probe set for one monitoring run. The
// primary health probe comes first; the rest is the fixed set of app.bsky
// read-only queries, parameterized with the monitored account where relevant.
func DefaultCatalog(actor string) []Probe {
	return []Probe{
		{Name: PrimaryProbeName, NSID: "com.atproto.server.describeServer"},
		{Name: "get_profile", NSID: "app.bsky.actor.getProfile", Params: map[string]string{"actor": actor}},
		{Name: "get_author_feed", NSID: "app.bsky.feed.getAuthorFeed", Params: map[string]string{"actor": actor, "limit": "5"}},
		{Name: "get_timeline", NSID: "app.bsky.feed.getTimeline", Params: map[string]string{"limit": "5"}},
		{Name: "get_post_thread", NSID: "app.bsky.feed.getPostThread", Params: map[string]string{"uri": examplePostURI}},
		{Name: "get_notifications", NSID: "app.bsky.notification.listNotifications", Params: map[string]string{"limit": "5"}},
		{Name: "get_suggestions", NSID: "app.bsky.actor.getSuggestions", Params: map[string]string{"limit": "5"}},
		{Name: "search_posts", NSID: "app.bsky.feed.searchPosts", Params: map[string]string{"q": "test", "limit": "5"}},
		{Name: "get_follows", NSID: "app.bsky.graph.getFollows", Params: map[string]string{"actor": actor, "limit": "5"}},
		{Name: "get_followers", NSID: "app.bsky.graph.getFollowers", Params: map[string]string{"actor": actor, "limit": "5"}},
		{Name: "get_likes", NSID: "app.bsky.feed.getLikes", Params: map[string]string{"uri": examplePostURI, "limit": "5"}},
		{Name: "get_reposts", NSID: "app.bsky.feed.getRepostedBy", Params: map[string]string{"uri": examplePostURI, "limit": "5"}},
		{Name: "get_blocks", NSID: "app.bsky.graph.getBlocks", Params: map[string]string{"limit": "5"}},
		{Name: "get_mutes", NSID: "app.bsky.graph.getMutes", Params: map[string]string{"limit": "5"}},
		{Name: "get_list", NSID: "app.bsky.graph.getList", Params: map[string]string{"list": exampleListURI}},
		{Name: "get_lists", NSID: "app.bsky.graph.getLists", Params: map[string]string{"actor": actor, "limit": "5"}},
		{Name: "get_bookmarks", NSID: "app.bsky.feed.getBookmarks", Params: map[string]string{"limit": "5"}},
		{Name: "get_preferences", NSID: "app.bsky.actor.getPreferences"},
		{Name: "get_suggested_follows", NSID: "app.bsky.actor.getSuggestions", Params: map[string]string{"limit": "5"}},
		{Name: "get_popular", NSID: "app.bsky.feed.getPopular", Params: map[string]string{"limit": "5"}},
		{Name: "get_trending", NSID: "app.bsky.feed.getTrending", Params: map[string]string{"limit": "5"}},
	}
}
