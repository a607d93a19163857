package model

// ForumPost 课程论坛帖子 — 对应 forum_posts
type ForumPost struct {
	PostID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"post_id"`
	CourseID string `gorm:"type:uuid;not null;index"                       json:"course_id"`
	AuthorID string `gorm:"type:uuid;not null"                             json:"author_id"`
	Title    string `gorm:"type:varchar(200);not null"                     json:"title"`
	Content  string `gorm:"type:text;not null"                             json:"content"`
	SoftDeleteModel

	// 关联
	Author  *User        `gorm:"foreignKey:AuthorID;references:UserID" json:"author,omitempty"`
	Replies []ForumReply `gorm:"foreignKey:PostID;references:PostID"   json:"replies,omitempty"`
}

// TableName 指定表名
func (ForumPost) TableName() string { return "forum_posts" }

// ForumReply 帖子回复 — 对应 forum_replies
type ForumReply struct {
	ReplyID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reply_id"`
	PostID   string `gorm:"type:uuid;not null;index"                       json:"post_id"`
	AuthorID string `gorm:"type:uuid;not null"                             json:"author_id"`
	Content  string `gorm:"type:text;not null"                             json:"content"`
	SoftDeleteModel

	Author *User `gorm:"foreignKey:AuthorID;references:UserID" json:"author,omitempty"`
}

// TableName 指定表名
func (ForumReply) TableName() string { return "forum_replies" }
