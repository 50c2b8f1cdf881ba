package prompts

import "fmt"

// IllustrationPrompt builds the image prompt for a story or adventure scene
func IllustrationPrompt(scene, imageInstruction string) string {
	return fmt.Sprintf(`Create a friendly illustration for a children's bedtime story. It should feel soft, warm and comforting, with gentle light and rounded shapes, and nothing scary or intense. Match the main characters, setting and mood of the story.

The scene to illustrate:
%s

Style guidance the parent set for every picture:
%s

Art style:
- Modern cartoon look like popular children's TV shows of today.
- Simple, clean character designs with big expressive eyes.
- Soft edges and smooth shading.
- A cozy atmosphere that suits bedtime.

Do not put any text in the image. Show a single magical and peaceful scene that captures the heart of the story.`, fence(scene), fence(imageInstruction))
}

// ColoringPrompt builds the prompt for a printable coloring page
func ColoringPrompt(subject string) string {
	return fmt.Sprintf(`Create a coloring page for young children.

Subject:
%s

Requirements:
- Black outlines on a plain white background.
- Thick, clean and closed lines that are easy to color inside.
- No shading, no gray areas, no filled shapes and no color.
- Large simple shapes with little fine detail.
- Friendly, cheerful characters and nothing scary.
- Do not include any text or letters.`, fence(subject))
}

// fence wraps user supplied text in a code block so it reads as data
func fence(s string) string {
	return "```\n" + s + "\n```"
}
