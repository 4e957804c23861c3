package gfx

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// Texture is a sampled 2D texture with its bind group for GroupTexture.
type Texture struct {
	tex     GPUTexture
	view    TextureView
	sampler Sampler
	group   BindGroup
	width   uint32
	height  uint32
}

// NewTexture creates an empty RGBA texture bound through layout.
func NewTexture(device Device, layout BindGroupLayout, width, height uint32) (*Texture, error) {
	tex, err := device.CreateTexture(&TextureDescriptor{
		Label:       "texture",
		Size:        gputypes.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		SampleCount: 1,
		Format:      gputypes.TextureFormatRGBA8UnormSrgb,
		Usage:       gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}
	t := &Texture{tex: tex, width: width, height: height}

	if t.view, err = tex.CreateView(); err != nil {
		tex.Destroy()
		return nil, fmt.Errorf("create texture view: %w", err)
	}
	t.sampler, err = device.CreateSampler(&SamplerDescriptor{
		Label:       "texture_sampler",
		AddressMode: gputypes.AddressModeClampToEdge,
		Filter:      gputypes.FilterModeLinear,
	})
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	t.group, err = device.CreateBindGroup(&BindGroupDescriptor{
		Label:  "texture",
		Layout: layout,
		Entries: []BindGroupEntry{
			{Binding: 0, View: t.view},
			{Binding: 1, Sampler: t.sampler},
		},
	})
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("create texture bind group: %w", err)
	}
	return t, nil
}

// LoadTexture decodes a PNG or JPEG blob and uploads it as RGBA.
func LoadTexture(device Device, queue Queue, layout BindGroupLayout, data []byte) (*Texture, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	rgba := ToRGBA(src)
	b := rgba.Bounds()

	t, err := NewTexture(device, layout, uint32(b.Dx()), uint32(b.Dy()))
	if err != nil {
		return nil, err
	}
	if err = t.Write(queue, rgba.Pix); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

// ToRGBA converts img to a tightly packed RGBA image anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Write replaces the whole texture with tightly packed RGBA pixels.
func (t *Texture) Write(queue Queue, pixels []byte) error {
	if want := int(4 * t.width * t.height); len(pixels) != want {
		return fmt.Errorf("write texture: want %d bytes, got %d", want, len(pixels))
	}
	if err := queue.WriteTexture(t.tex, pixels, 4*t.width); err != nil {
		return fmt.Errorf("write texture: %w", err)
	}
	return nil
}

func (t *Texture) Size() (width, height uint32) {
	return t.width, t.height
}

// Bind sets the texture group at GroupTexture.
func (t *Texture) Bind(pass RenderPass) {
	pass.SetBindGroup(GroupTexture, t.group)
}

func (t *Texture) Destroy() {
	for _, r := range []Resource{t.group, t.sampler, t.view, t.tex} {
		if r != nil {
			r.Destroy()
		}
	}
}
