package mcpserver

// LinkSyntaxURI identifies the link syntax resource.
const LinkSyntaxURI = "campaignjournal://link-syntax"

// LinkSyntaxContract describes how journal notes reference other documents.
const LinkSyntaxContract = `# Campaign Journal Link Syntax

Notes are Markdown. Other documents are referenced inline with double
brackets:

` + "```" + `
[[category:name]]
[[category:name:label]]
` + "```" + `

## Rules

1. **category** is one of ` + "`" + `location` + "`" + `, ` + "`" + `character` + "`" + ` or ` + "`" + `npc` + "`" + ` (an alias for
   character). Matching is case-insensitive.
2. **name** is the document name exactly as it was created. Letters, digits,
   underscores and single spaces between words are allowed.
3. **label** is optional display text; without it the name is shown.
4. Spaces around the colons are ignored: ` + "`" + `[[ npc : Old Man ]]` + "`" + ` works.
5. A reference with an empty category or name is removed from the output.
6. A reference with any other category is left as plain text.
7. Links are resolved by name only; linking to a document that does not exist
   yet produces a link that starts working once it is created.
8. Headings in notes are shifted one level down when displayed, so start
   with ` + "`" + `#` + "`" + ` for the top level.

## Example

` + "```" + `markdown
# Session 12

The party reached [[location:Dark Cave:the cave]] and met
[[npc:Old Man]], who warned them about [[character:Red Hand Leader]].
` + "```" + `
`
