package store

// Key layout. Primary records are JSON; index keys map to an id or are empty
// markers whose suffix carries the id.
//
//	user:{id}                                   → User
//	user:idx:email:{email}                      → userID   (Entity index)
//	stack:{id}                                  → Stack
//	stack:idx:owner:{userID}:{stackID}          → stackID  (Entity index)
//	tag:{id}                                    → Tag
//	idx:tags:owner:{userID}:{tagID}             → empty
//	idx:tags:name:{userID}:{normalizedName}     → tagID
//	article:{id}                                → Article
//	idx:articles:owner:{userID}:{articleID}     → empty
//	highlight:{id}                              → Highlight
//	idx:highlights:article:{articleID}:{hlID}   → empty
//
// There is deliberately no tag → article index; tag membership is computed by
// scanning the owner's articles.
const (
	tagPrefix             = "tag:"
	tagsByOwnerPrefix     = "idx:tags:owner:"
	tagsByNamePrefix      = "idx:tags:name:"
	articlePrefix         = "article:"
	articlesByOwnerPrefix = "idx:articles:owner:"
	highlightPrefix       = "highlight:"
	highlightsByArticle   = "idx:highlights:article:"
)

func tagKey(tagID string) string { return tagPrefix + tagID }

func tagOwnerKey(userID, tagID string) string { return tagsByOwnerPrefix + userID + ":" + tagID }

func tagNameKey(userID, normalized string) string {
	return tagsByNamePrefix + userID + ":" + normalized
}

func articleKey(articleID string) string { return articlePrefix + articleID }

func articleOwnerKey(userID, articleID string) string {
	return articlesByOwnerPrefix + userID + ":" + articleID
}

func highlightKey(highlightID string) string { return highlightPrefix + highlightID }

func highlightArticleKey(articleID, highlightID string) string {
	return highlightsByArticle + articleID + ":" + highlightID
}
