package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// DecodeWAV 解析 RIFF/WAVE 数据（16bit PCM），返回单声道 float32 样本与采样率。
// 双声道输入按左右声道取平均折叠为单声道。
func DecodeWAV(r io.Reader) ([]float32, int, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, 0, fmt.Errorf("读取 RIFF 头失败: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("不是 RIFF/WAVE 数据")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		data       []byte
	)

	// 依次遍历 chunk，直到拿到 fmt 和 data
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, 0, fmt.Errorf("读取 chunk 头失败: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, fmt.Errorf("读取 fmt chunk 失败: %w", err)
			}
			if len(body) < 16 {
				return nil, 0, fmt.Errorf("fmt chunk 过短: %d bytes", len(body))
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			if format != 1 {
				return nil, 0, fmt.Errorf("不支持的音频格式: %d (仅支持 PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits = int(binary.LittleEndian.Uint16(body[14:16]))
		case "data":
			data = make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, 0, fmt.Errorf("读取 data chunk 失败: %w", err)
			}
		default:
			// 跳过 LIST 等无关 chunk；chunk 按偶数字节对齐
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, 0, fmt.Errorf("跳过 chunk %s 失败: %w", id, err)
			}
		}

		if sampleRate != 0 && data != nil {
			break
		}
	}

	if sampleRate == 0 {
		return nil, 0, fmt.Errorf("缺少 fmt chunk")
	}
	if data == nil {
		return nil, 0, fmt.Errorf("缺少 data chunk")
	}
	if bits != 16 {
		return nil, 0, fmt.Errorf("不支持的位深: %d (仅支持 16bit)", bits)
	}

	samples := BytesToFloat32(data)
	switch channels {
	case 1:
	case 2:
		samples = StereoToMono(samples)
	default:
		return nil, 0, fmt.Errorf("不支持的声道数: %d", channels)
	}
	return samples, sampleRate, nil
}

// DecodeWAVFile 读取并解析 WAV 文件。
func DecodeWAVFile(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return DecodeWAV(f)
}

// EncodeWAV 将单声道 float32 样本写为 16bit PCM WAV。
func EncodeWAV(w io.Writer, samples []float32, sampleRate int) error {
	pcm := Float32ToBytes(samples)
	dataLen := len(pcm)

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataLen))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 1) // 单声道
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(hdr[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(hdr[34:36], 16)                   // bits per sample
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataLen))

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(pcm)
	return err
}

// EncodeWAVFile 将样本写入 WAV 文件。
func EncodeWAVFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeWAV(f, samples, sampleRate)
}
